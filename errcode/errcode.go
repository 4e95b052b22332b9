package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Failure classes. Every bring-up failure carries exactly one of these.
const (
	ConfigurationDefect Code = "configuration_defect"
	ResourceConflict    Code = "resource_conflict"
	HardwareUnavailable Code = "hardware_unavailable"
	SequenceAbort       Code = "sequence_abort"
)

// Detail codes (short, stable).
const (
	OK            Code = "ok"
	InvalidParams Code = "invalid_params"
	Unsupported   Code = "unsupported"
	AlreadyRun    Code = "already_run"

	UnknownBus Code = "unknown_bus"
	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	AddrInUse  Code = "addr_in_use"
	NoResponse Code = "no_response"

	Error Code = "error" // generic fallback
)

// E keeps a failure class together with the operation, the resource that
// caused it and the underlying cause.
type E struct {
	C   Code
	Op  string // e.g. "reserve_gpio", "register_regulator"
	Res string // resource identity, e.g. "GPF13", "i2c0@0x1a"
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s += " [" + e.Op + "]"
	}
	if e.Res != "" {
		s += " " + e.Res
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.ResourceConflict) match on the class.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E.
func New(c Code, op, res, msg string, cause error) *E {
	return &E{C: c, Op: op, Res: res, Msg: msg, Err: cause}
}

// Of extracts the outermost Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// ResourceOf returns the first resource identity recorded along the chain.
func ResourceOf(err error) string {
	for err != nil {
		if e, ok := err.(*E); ok && e.Res != "" {
			return e.Res
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
