package contracts

// PortDirection tells whether a port carries data into or out of the host.
type PortDirection string

const (
	// Input ports deliver messages from a device to the host.
	Input PortDirection = "in"
	// Output ports deliver messages from the host to a device.
	Output PortDirection = "out"
)

// PortInfo is one entry of a port enumeration. It is a snapshot: indices go
// stale once ports are added or removed, so callers must enumerate again.
type PortInfo struct {
	Index     int           // Position in the transport's enumeration.
	Name      string        // Human readable port name.
	Direction PortDirection // Input or Output.
}
