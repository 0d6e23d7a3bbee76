package logger

// Component-specific logger functions

// Component returns a logger tagged with the given component name
func Component(name string) *Logger {
	return Default().WithField("component", name)
}

// HTTP returns a logger for request handling
func HTTP() *Logger {
	return Component("http")
}

// Repository returns a logger for storage operations
func Repository() *Logger {
	return Component("repository")
}

// Service returns a logger for hierarchy operations
func Service() *Logger {
	return Component("service")
}

// Generator returns a logger for child generation
func Generator() *Logger {
	return Component("generator")
}

// Events returns a logger for event publishing
func Events() *Logger {
	return Component("events")
}

// CLI returns a logger for CLI operations
func CLI() *Logger {
	return Component("cli")
}
