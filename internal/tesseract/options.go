package tesseract

import "time"

// Defaults applied to every operation unless overridden per call.
const (
	DefaultLanguage = "eng"
	DefaultDPI      = 300
	DefaultPSM      = 3
	DefaultOEM      = 3
	DefaultTimeout  = 30 * time.Second
)

type options struct {
	lang         string
	dpi          int
	psm          int
	oem          int
	timeout      time.Duration
	userWords    string
	userPatterns string
	tessdataDir  string
	configVars   []configVar
}

type configVar struct {
	key   string
	value string
}

// Option mutates the per-call invocation settings.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		lang:    DefaultLanguage,
		dpi:     DefaultDPI,
		psm:     DefaultPSM,
		oem:     DefaultOEM,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLanguage sets the recognition language. Multiple languages combine with
// "+" (e.g. "eng+por").
func WithLanguage(lang string) Option {
	return func(o *options) { o.lang = lang }
}

// WithDPI sets the image dots-per-inch hint.
func WithDPI(dpi int) Option {
	return func(o *options) { o.dpi = dpi }
}

// WithPSM sets the page segmentation mode.
func WithPSM(psm int) Option {
	return func(o *options) { o.psm = psm }
}

// WithOEM sets the OCR engine mode.
func WithOEM(oem int) Option {
	return func(o *options) { o.oem = oem }
}

// WithTimeout bounds the subprocess wait. The process is killed when the
// timeout elapses and the call returns ErrTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithUserWords points tesseract at a user words file.
func WithUserWords(path string) Option {
	return func(o *options) { o.userWords = path }
}

// WithUserPatterns points tesseract at a user patterns file.
func WithUserPatterns(path string) Option {
	return func(o *options) { o.userPatterns = path }
}

// WithTessdataDir overrides the traineddata directory.
func WithTessdataDir(path string) Option {
	return func(o *options) { o.tessdataDir = path }
}

// WithConfigVariable passes an engine variable as `-c key=value`. Variables
// are forwarded in the order they were added.
func WithConfigVariable(key, value string) Option {
	return func(o *options) {
		o.configVars = append(o.configVars, configVar{key: key, value: value})
	}
}
