// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcd

// Version is the release of the module, printed by hd44780ctl version.
const Version = "0.3.0"
