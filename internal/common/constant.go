package common

// TimestampLayout is the fixed format used for record creation timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// MaxMessageLength is the maximum accepted input length, in runes.
const MaxMessageLength = 1000
