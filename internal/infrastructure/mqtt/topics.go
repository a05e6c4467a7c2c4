package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "graydash"

// Command kinds accepted under {prefix}/command/.
const (
	CommandLamp       = "lamp"
	CommandFan        = "fan"
	CommandThermostat = "thermostat"
	CommandReset      = "reset"
	CommandDevice     = "device"
)

// Topics builds the dashboard's MQTT topic tree under a single prefix.
//
//	{prefix}/state/dashboard        retained full snapshot
//	{prefix}/state/device/{id}      retained per-device state
//	{prefix}/sensor/reading         latest accepted reading
//	{prefix}/power/total            retained total consumption
//	{prefix}/command/{kind}         inbound commands
//	{prefix}/command/device/{id}    inbound per-device status command
//	{prefix}/system/status          online/offline (also the LWT topic)
type Topics struct {
	Prefix string
}

// NewTopics returns a Topics rooted at prefix. Surrounding slashes are
// stripped; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) join(parts ...string) string {
	root := t.Prefix
	if root == "" {
		root = DefaultTopicPrefix
	}
	return root + "/" + strings.Join(parts, "/")
}

// DashboardState returns the retained snapshot topic.
func (t Topics) DashboardState() string { return t.join("state", "dashboard") }

// DeviceState returns the retained state topic for one device.
func (t Topics) DeviceState(deviceID string) string { return t.join("state", "device", deviceID) }

// AllDeviceStates matches every per-device state topic.
func (t Topics) AllDeviceStates() string { return t.join("state", "device", "+") }

// SensorReading returns the topic carrying each appended reading.
func (t Topics) SensorReading() string { return t.join("sensor", "reading") }

// PowerTotal returns the retained total power topic.
func (t Topics) PowerTotal() string { return t.join("power", "total") }

// Command returns the command topic for a kind such as CommandLamp.
func (t Topics) Command(kind string) string { return t.join("command", kind) }

// DeviceCommand returns the status command topic for one device.
func (t Topics) DeviceCommand(deviceID string) string {
	return t.join("command", CommandDevice, deviceID)
}

// AllCommands matches every inbound command.
func (t Topics) AllCommands() string { return t.join("command", "#") }

// SystemStatus returns the online/offline status topic.
func (t Topics) SystemStatus() string { return t.join("system", "status") }

// All matches the whole tree.
func (t Topics) All() string { return t.join("#") }

// ParseCommand splits a received command topic into its kind and, for
// device commands, the device ID. ok is false for topics outside the
// command subtree.
func (t Topics) ParseCommand(topic string) (kind, deviceID string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.join("command")+"/")
	if !found || rest == "" {
		return "", "", false
	}
	kind, deviceID, _ = strings.Cut(rest, "/")
	if kind == CommandDevice && deviceID == "" {
		return "", "", false
	}
	if kind != CommandDevice && deviceID != "" {
		return "", "", false
	}
	return kind, deviceID, true
}
