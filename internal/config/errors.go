package config

import "errors"

var (
	// ErrConfigVersionTooNew is returned when a config file has a version
	// newer than what this binary supports.
	ErrConfigVersionTooNew = errors.New("config version too new")

	// ErrNoTopics is returned when a config declares zero topics; a node
	// with nothing to gossip about has nothing useful to do.
	ErrNoTopics = errors.New("config: at least one topic is required")
)
