// Package modbus mirrors indicator snapshots to a block of Modbus TCP coils,
// one coil per indicator in set order.
package modbus
