// Package relay bridges the device state store and the MQTT bus.
//
// Outbound, every store event is mirrored onto retained state topics so
// late subscribers always see the current dashboard. Inbound, commands on
// {prefix}/command/... are decoded and applied to the store; the resulting
// store event then flows back out through the same path.
package relay
