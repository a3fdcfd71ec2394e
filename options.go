package distvec

import "fmt"

// PartitionKind selects how a vector's entries are laid out across
// the ranks of its group.
type PartitionKind int

const (
	// PartitionAutomatic lets Init pick: serial when the local size
	// equals the global size, parallel otherwise.
	PartitionAutomatic PartitionKind = iota

	// PartitionSerial replicates the whole vector on the calling
	// rank; local size and global size must match.
	PartitionSerial

	// PartitionParallel splits the vector into contiguous owned
	// ranges, one per rank.
	PartitionParallel

	// PartitionGhosted is PartitionParallel plus locally mirrored
	// ghost entries for selected non-owned indices.
	PartitionGhosted
)

func (k PartitionKind) String() string {
	switch k {
	case PartitionAutomatic:
		return "Automatic"
	case PartitionSerial:
		return "Serial"
	case PartitionParallel:
		return "Parallel"
	case PartitionGhosted:
		return "Ghosted"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

type options struct {
	logger  *Logger
	metrics MetricsCollector
}

// Option configures a Vector at construction time.
type Option func(*options)

// WithLogger configures structured logging for lifecycle and
// collective operations. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

type initOptions struct {
	ghosts   []int
	hint     PartitionKind
	zeroFill bool
}

// InitOption configures one Init call.
type InitOption func(*initOptions)

// WithGhosts reserves local mirror slots for the given non-owned
// global indices and forces a ghosted partition.
func WithGhosts(indices []int) InitOption {
	return func(o *initOptions) {
		o.ghosts = indices
	}
}

// WithPartitionHint fixes the partition kind instead of deriving it
// from the sizes. Init fails with ErrInvalidPartition when the hint
// and the sizes disagree.
func WithPartitionHint(kind PartitionKind) InitOption {
	return func(o *initOptions) {
		o.hint = kind
	}
}

// WithoutZeroFill skips the zero fill after allocation. The storage
// contents are unspecified until assigned; use it when every entry is
// about to be overwritten anyway.
func WithoutZeroFill() InitOption {
	return func(o *initOptions) {
		o.zeroFill = false
	}
}
