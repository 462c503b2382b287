// Package jwt inspects session tokens without verifying them.
//
// The engine treats tokens as opaque; the only local decision ever taken on
// token contents is the bootstrap expiry precheck, which skips a doomed
// revalidation round-trip when the persisted token is a JWT that has
// already expired. Signature verification is the server's job and is
// deliberately absent here.
package jwt
