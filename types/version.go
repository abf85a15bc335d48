package types

// Version is the canonical project version.
// The CLI, run report schema, and history frame format share this
// version under the lockstep versioning policy.
const Version = "0.3.0"
