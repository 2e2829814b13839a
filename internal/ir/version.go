package ir

// Version is the isolate release version.
const Version = "0.1.0"
