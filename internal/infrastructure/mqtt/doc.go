// Package mqtt connects the dashboard to an MQTT broker.
//
// The client mirrors store state onto a retained topic tree and accepts
// commands from other home automation components:
//
//	dashboard ↔ broker ↔ (Home Assistant, Node-RED, wall panels)
//
// Connect registers a Last Will so subscribers see the dashboard go
// offline if the process dies, reconnects with exponential backoff and
// restores subscriptions afterwards. Topics builds every topic under the
// configured prefix (default "graydash").
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Subscribe(topics.AllCommands(), 1, handleCommand)
//	err = client.PublishRetained(topics.PowerTotal(), []byte(`{"watts":260}`))
package mqtt
