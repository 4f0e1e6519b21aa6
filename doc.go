// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package a1335 provides a driver for the Allegro MicroSystems A1335
// contactless magnetic angle sensor. The A1335 reports the absolute
// angular position of a rotating magnet, typically a diametrically
// magnetized cylinder on a shaft, together with die temperature and
// magnetic field strength, over an I²C bus.
//
// Datasheet
//
//	https://www.allegromicro.com/-/media/files/datasheets/a1335-datasheet.ashx
package a1335
