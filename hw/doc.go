// Package hw describes the ENET MAC peripheral as it is seen from the bus: the
// register map, the bit layout of every register the driver touches, and the
// enhanced buffer descriptor format shared with the DMA engine.
//
// Both the driver (package mac) and the simulated peripheral (package sim)
// are written against this package, so it must stay bit-exact with the
// silicon reference manual.
package hw
