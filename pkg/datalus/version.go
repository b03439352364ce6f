package datalus

// Version is the datalus release version.
const Version = "0.1.0"
