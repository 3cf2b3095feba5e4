package common

// SessionTokenKey is the metadata key under which a client keeps its opaque
// session token between runs.
const SessionTokenKey = "session_token"

// AppDirName is the per-user directory holding the local database.
const AppDirName = ".cardkeep"
