package interfaces

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
	// TriggerPoll runs one out-of-band poll cycle, used right after a
	// successful publish so the new pin shows up without waiting a full
	// interval.
	TriggerPoll()
}

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}
