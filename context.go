package authflow

import "context"

type deviceIDContextKey struct{}

// WithDeviceID attaches the installation's device identifier to ctx. The
// engine stamps it on audit events and the remote client forwards it as the
// X-Device-ID header so the backend can correlate login attempts per
// workstation.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDContextKey{}, deviceID)
}

// DeviceIDFromContext returns the device identifier attached with
// [WithDeviceID], or "" when none is set.
func DeviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(deviceIDContextKey{}).(string)
	return id
}
