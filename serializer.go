package docwire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
)

// ErrInvalidModel is wrapped by encoding errors caused by a malformed model
// value (a nil Value, an unknown operator, nesting beyond the depth limit).
var ErrInvalidModel = wire.ErrInvalidInput

// IsDataLoss reports whether err is a decoding failure caused by malformed
// wire input.
func IsDataLoss(err error) bool {
	return errors.Is(err, wire.ErrDataLoss)
}

type Options struct {
	Logger   *slog.Logger
	Verbose  bool // log every decode failure at Debug level
	MaxDepth int  // message nesting limit, wire.DefaultMaxDepth if zero
}

// Serializer converts model values to and from wire messages for a single
// database. It holds no mutable state and is safe for concurrent use.
type Serializer struct {
	db       model.DatabaseID
	rootName string
	logger   *slog.Logger
	verbose  bool
	maxDepth int
}

func New(db model.DatabaseID, opt Options) *Serializer {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = wire.DefaultMaxDepth
	}
	return &Serializer{
		db:       db,
		rootName: EncodeResourceName(db, model.ResourcePath{}),
		logger:   opt.Logger,
		verbose:  opt.Verbose,
		maxDepth: opt.MaxDepth,
	}
}

func (s *Serializer) DatabaseID() model.DatabaseID {
	return s.db
}

// NewReader returns a reader over data configured with this serializer's
// nesting limit.
func (s *Serializer) NewReader(data []byte) *wire.Reader {
	r := wire.NewReader(data)
	r.SetMaxDepth(s.maxDepth)
	return r
}

func (s *Serializer) NewWriter() *wire.Writer {
	w := wire.NewWriter(nil)
	w.SetMaxDepth(s.maxDepth)
	return w
}

func (s *Serializer) encode(what string, fn func(w *wire.Writer)) ([]byte, error) {
	w := s.NewWriter()
	fn(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", what, err)
	}
	return w.Bytes(), nil
}

func decode[T any](s *Serializer, what string, data []byte, fn func(r *wire.Reader) T) (T, error) {
	r := s.NewReader(data)
	v := fn(r)
	if err := r.Err(); err != nil {
		if s.verbose {
			s.logger.LogAttrs(context.Background(), slog.LevelDebug, "docwire: decode failed", slog.String("msg", what), hexAttr("data", data), slog.Any("err", err))
		}
		var zero T
		return zero, err
	}
	return v, nil
}
