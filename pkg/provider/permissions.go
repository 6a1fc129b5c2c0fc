package provider

import (
	"os"
	"runtime"
	"strings"

	axerrors "github.com/dshills/goax/pkg/errors"
)

// AccessStatus is the coarse accessibility trust state.
type AccessStatus string

const (
	AccessUnknown     AccessStatus = "unknown"
	AccessGranted     AccessStatus = "granted"
	AccessDenied      AccessStatus = "denied"
	AccessPrompt      AccessStatus = "prompt"
	AccessUnavailable AccessStatus = "unavailable"
)

// AccessEnv overrides the probe result, mostly for tests and CI.
const AccessEnv = "GOAX_ACCESSIBILITY"

// ProbeResult describes the accessibility trust state.
type ProbeResult struct {
	Status   AccessStatus
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

// ProbeAccessibility inspects the environment for accessibility trust.
func ProbeAccessibility(lookup LookupEnvFunc) ProbeResult {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup(AccessEnv); ok {
		return interpretAccessFlag(value)
	}
	if runtime.GOOS == "darwin" {
		return ProbeResult{Status: AccessPrompt, Message: "accessibility trust required"}
	}
	return ProbeResult{Status: AccessUnavailable, Message: "no accessibility API on this platform"}
}

func interpretAccessFlag(value string) ProbeResult {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Status: AccessGranted, Message: "accessibility pre-authorised via " + AccessEnv}
	case "denied", "no", "false", "blocked":
		return ProbeResult{
			Status:   AccessDenied,
			Message:  "accessibility denied via " + AccessEnv,
			Guidance: "grant access in System Settings > Privacy & Security > Accessibility",
		}
	case "prompt", "ask":
		return ProbeResult{Status: AccessPrompt, Message: "accessibility will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Status: AccessUnavailable, Message: "accessibility unavailable on this platform"}
	default:
		return ProbeResult{Status: AccessUnknown, Message: "accessibility state unknown"}
	}
}

// Err converts a denied probe into a PermissionDenied error; every other state is nil.
func (p ProbeResult) Err() error {
	if p.Status != AccessDenied {
		return nil
	}
	msg := p.Message
	if p.Guidance != "" {
		msg += " (" + p.Guidance + ")"
	}
	return axerrors.New(axerrors.PermissionDenied, "accessibility probe", "%s", msg)
}
