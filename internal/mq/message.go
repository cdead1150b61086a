package mq

import "time"

// Message is the envelope every JSON payload is published in.
type Message struct {
	Data   interface{} `json:"data"`
	Source string      `json:"source"`
}

type MessageOptions struct {
	Qos      byte          `json:"qos"`
	Retained bool          `json:"retained"`
	Timeout  time.Duration `json:"timeout"`
	Source   string        `json:"source"`
}

const DefaultSource = "COORDINATOR"

// StatusMessageOptions are used for retained state such as mission phases.
func StatusMessageOptions() *MessageOptions {
	return &MessageOptions{
		Qos:      1,
		Retained: true,
		Timeout:  5 * time.Second,
		Source:   DefaultSource,
	}
}

// CommandMessageOptions are used for vehicle commands, which must never be
// replayed to a late subscriber.
func CommandMessageOptions() *MessageOptions {
	return &MessageOptions{
		Qos:      1,
		Retained: false,
		Timeout:  2 * time.Second,
		Source:   DefaultSource,
	}
}
