package common

// AuthorizationHeaderName is the gRPC metadata key carrying the data service key.
const AuthorizationHeaderName = "authorization"

// RoleAdmin is the role value that grants administrator privileges.
const RoleAdmin = "admin"
