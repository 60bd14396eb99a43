// Package engine hosts the Dependency Engine: a WebAssembly module exposing
// a fixed, linear-memory ABI (see the function table in SPEC_FULL.md §6).
// Client is the thin marshaller over that ABI — JSON in, JSON out, through
// malloc'd scratch buffers, with status codes mapped to *Error.
package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytecodealliance/wasmtime-go/v3"
	"golang.org/x/time/rate"

	"github.com/bold-minds/includekit-go/insights"
	"github.com/bold-minds/includekit-go/internal/logging"
	"github.com/bold-minds/includekit-go/model"
)

// Engine is the coordinator-facing contract for the Dependency Engine. It is
// an interface so coordinator tests can swap in a fake without loading wasm.
type Engine interface {
	Version(ctx context.Context) (Version, error)
	SetSchema(ctx context.Context, schema model.AppSchema) error
	ComputeShapeId(ctx context.Context, stmt model.Statement) (model.ShapeId, error)
	AddQuery(ctx context.Context, shape model.Statement, resultHint any) (AddQueryResult, error)
	Invalidate(ctx context.Context, mutation model.Mutation) ([]model.ShapeId, error)
	ExplainInvalidation(ctx context.Context, mutation model.Mutation, shapeId model.ShapeId) (ExplainResult, error)
	Reset(ctx context.Context) error
	Close() error
}

// Version mirrors the engine's version() result triple.
type Version struct {
	Core     string `json:"core"`
	Contract string `json:"contract"`
	ABI      string `json:"abi"`
}

// AddQueryResult is the decoded result of add_query.
type AddQueryResult struct {
	ShapeId      model.ShapeId `json:"shapeId"`
	Dependencies any           `json:"dependencies"`
}

// ExplainResult is the decoded result of explain_invalidation.
type ExplainResult struct {
	Invalidate bool     `json:"invalidate"`
	Reasons    []string `json:"reasons"`
}

type invalidateResult struct {
	Evict []model.ShapeId `json:"evict"`
}

// Config configures a Client. One of ModulePath or ModuleBytes is required;
// if both are set, ModuleBytes is used, and if both are empty, New returns an
// error. RateLimit, when
// non-zero, bounds outgoing ABI calls per second as an availability
// safeguard against a mapper producing pathological statement trees — it is
// not required for correctness.
type Config struct {
	ModulePath  string
	ModuleBytes []byte
	RateLimit   rate.Limit
	RateBurst   int
	Logger      *logging.Logger

	// Metrics, when set, receives one ObserveEngineLatency call per ABI
	// round-trip performed by call (SPEC_FULL.md §10.1's engine-latency
	// histogram).
	Metrics *insights.Metrics
}

// Client is the default Engine implementation, hosting the Dependency
// Engine as a wasmtime module. One Client owns exactly one wasm store;
// every ABI call is serialized through clientMu because wasm stores are not
// safe for concurrent use from multiple goroutines.
type Client struct {
	logger  *logging.Logger
	metrics *insights.Metrics

	clientMu sync.Mutex
	engine   *wasmtime.Engine
	store    *wasmtime.Store
	instance *wasmtime.Instance
	memory   *wasmtime.Memory

	fnMalloc              *wasmtime.Func
	fnFree                *wasmtime.Func
	fnVersion             *wasmtime.Func
	fnSetSchema           *wasmtime.Func
	fnComputeShapeId      *wasmtime.Func
	fnAddQuery            *wasmtime.Func
	fnInvalidate          *wasmtime.Func
	fnExplainInvalidation *wasmtime.Func
	fnReset               *wasmtime.Func
	fnTakeResult          *wasmtime.Func
	fnLastError           *wasmtime.Func

	limiter *rate.Limiter

	// scratchPtr is the fixed scratch region passed to take_result/last_error;
	// it is allocated once at construction and reused for the client's
	// lifetime (it only ever holds an 8-byte (offset,length) pair).
	scratchPtr int32
}

const scratchSize = 16

// New instantiates the Dependency Engine module and resolves its exported
// functions and memory. The module is loaded once per Client; the resulting
// store/instance/memory are reused across calls subject to the fresh-buffer
// discipline documented on each call site.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.ModulePath == "" && len(cfg.ModuleBytes) == 0 {
		return nil, fmt.Errorf("includekit/engine: one of ModulePath or ModuleBytes is required")
	}

	eng := wasmtime.NewEngine()
	store := wasmtime.NewStore(eng)

	var mod *wasmtime.Module
	var err error
	if len(cfg.ModuleBytes) > 0 {
		mod, err = wasmtime.NewModule(eng, cfg.ModuleBytes)
	} else {
		mod, err = wasmtime.NewModuleFromFile(eng, cfg.ModulePath)
	}
	if err != nil {
		return nil, fmt.Errorf("includekit/engine: compiling dependency engine module: %w", err)
	}

	linker := wasmtime.NewLinker(eng)
	instance, err := linker.Instantiate(store, mod)
	if err != nil {
		return nil, fmt.Errorf("includekit/engine: instantiating dependency engine module: %w", err)
	}

	memExport := instance.GetExport(store, "memory")
	if memExport == nil || memExport.Memory() == nil {
		return nil, fmt.Errorf("includekit/engine: module does not export linear memory")
	}

	c := &Client{
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		engine:   eng,
		store:    store,
		instance: instance,
		memory:   memExport.Memory(),
	}

	getFn := func(name string) (*wasmtime.Func, error) {
		item := instance.GetExport(store, name)
		if item == nil || item.Func() == nil {
			return nil, fmt.Errorf("includekit/engine: module does not export function %q", name)
		}
		return item.Func(), nil
	}

	fns := map[string]**wasmtime.Func{
		"malloc":               &c.fnMalloc,
		"free":                 &c.fnFree,
		"version":              &c.fnVersion,
		"set_schema":           &c.fnSetSchema,
		"compute_shape_id":     &c.fnComputeShapeId,
		"add_query":            &c.fnAddQuery,
		"invalidate":           &c.fnInvalidate,
		"explain_invalidation": &c.fnExplainInvalidation,
		"reset":                &c.fnReset,
		"take_result":          &c.fnTakeResult,
		"last_error":           &c.fnLastError,
	}
	for name, slot := range fns {
		fn, ferr := getFn(name)
		if ferr != nil {
			return nil, ferr
		}
		*slot = fn
	}

	scratch, err := c.malloc(scratchSize)
	if err != nil {
		return nil, fmt.Errorf("includekit/engine: allocating scratch region: %w", err)
	}
	c.scratchPtr = scratch

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}

	c.logger.Info().Msg("dependency engine instantiated")
	return c, nil
}

func (c *Client) malloc(size int32) (int32, error) {
	raw, err := c.fnMalloc.Call(c.store, size)
	if err != nil {
		return 0, fmt.Errorf("includekit/engine: malloc(%d): %w", size, err)
	}
	ptr, ok := raw.(int32)
	if !ok {
		return 0, fmt.Errorf("includekit/engine: malloc returned non-i32 value %v", raw)
	}
	return ptr, nil
}

func (c *Client) free(ptr, size int32) {
	if _, err := c.fnFree.Call(c.store, ptr, size); err != nil {
		c.logger.Warn().Err(err).Msg("dependency engine free call failed")
	}
}

// currentMemory re-reads the exported memory's data slice. Per the
// fresh-buffer discipline, any call into the module may have grown linear
// memory, invalidating any slice captured before that call; every access
// must go back through this method rather than caching a []byte.
func (c *Client) currentMemory() []byte {
	return c.memory.UnsafeData(c.store)
}

func (c *Client) writeBytes(ptr int32, data []byte) {
	mem := c.currentMemory()
	copy(mem[ptr:], data)
}

func (c *Client) readBytes(ptr, length int32) []byte {
	mem := c.currentMemory()
	out := make([]byte, length)
	copy(out, mem[ptr:ptr+length])
	return out
}

// readScratchPair decodes the (offset,length) little-endian u32 pair that
// take_result/last_error write into the scratch region.
func (c *Client) readScratchPair() (int32, int32) {
	mem := c.currentMemory()
	off := int32(binary.LittleEndian.Uint32(mem[c.scratchPtr : c.scratchPtr+4]))
	length := int32(binary.LittleEndian.Uint32(mem[c.scratchPtr+4 : c.scratchPtr+8]))
	return off, length
}

// call performs one ABI round-trip: serialize in, malloc, copy, invoke,
// free, then decode the result or error based on the returned status.
func (c *Client) call(ctx context.Context, fn *wasmtime.Func, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("includekit/engine: rate limiter wait: %w", err)
		}
	}

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("includekit/engine: marshaling request: %w", err)
		}
		if strings.ContainsRune(string(encoded), 0) {
			return nil, fmt.Errorf("includekit/engine: request payload contains a NUL byte")
		}
		body = encoded
	}

	c.clientMu.Lock()
	defer c.clientMu.Unlock()

	start := time.Now()
	defer c.observeLatency(start)

	var status StatusCode
	if body == nil {
		raw, err := fn.Call(c.store)
		if err != nil {
			return nil, fmt.Errorf("includekit/engine: calling module function: %w", err)
		}
		status = toStatus(raw)
	} else {
		ptr, err := c.malloc(int32(len(body)))
		if err != nil {
			return nil, err
		}
		defer c.free(ptr, int32(len(body)))
		c.writeBytes(ptr, body)

		raw, err := fn.Call(c.store, ptr, int32(len(body)))
		if err != nil {
			return nil, fmt.Errorf("includekit/engine: calling module function: %w", err)
		}
		status = toStatus(raw)
	}

	if status == StatusOK {
		if _, err := c.fnTakeResult.Call(c.store, c.scratchPtr, c.scratchPtr+8); err != nil {
			return nil, fmt.Errorf("includekit/engine: take_result: %w", err)
		}
		off, length := c.readScratchPair()
		return c.readBytes(off, length), nil
	}

	log := logging.LoggerFromContext(ctx, c.logger)

	if _, err := c.fnLastError.Call(c.store, c.scratchPtr, c.scratchPtr+8); err != nil {
		log.Warn().Err(err).Msg("dependency engine last_error call failed")
		return nil, newSyntheticError(status)
	}
	off, length := c.readScratchPair()
	raw := c.readBytes(off, length)

	var decoded struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Warn().Err(err).Msg("decoding dependency engine error payload failed")
		return nil, newSyntheticError(status)
	}
	log.Debug().Str("status", status.Name()).Str("message", decoded.Message).Msg("dependency engine call returned an error status")
	return nil, &Error{Code: status, Message: decoded.Message}
}

func (c *Client) observeLatency(start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveEngineLatency(time.Since(start))
	}
}

func toStatus(raw any) StatusCode {
	switch v := raw.(type) {
	case int32:
		return StatusCode(v)
	case uint32:
		return StatusCode(v)
	default:
		return StatusInternal
	}
}

func (c *Client) Version(ctx context.Context) (Version, error) {
	raw, err := c.call(ctx, c.fnVersion, nil)
	if err != nil {
		return Version{}, err
	}
	var v Version
	if jerr := json.Unmarshal(raw, &v); jerr != nil {
		return Version{}, fmt.Errorf("includekit/engine: decoding version result: %w", jerr)
	}
	return v, nil
}

func (c *Client) SetSchema(ctx context.Context, schema model.AppSchema) error {
	_, err := c.call(ctx, c.fnSetSchema, schema)
	return err
}

func (c *Client) ComputeShapeId(ctx context.Context, stmt model.Statement) (model.ShapeId, error) {
	raw, err := c.call(ctx, c.fnComputeShapeId, stmt)
	if err != nil {
		return "", err
	}
	var decoded struct {
		ShapeId model.ShapeId `json:"shapeId"`
	}
	if jerr := json.Unmarshal(raw, &decoded); jerr != nil {
		return "", fmt.Errorf("includekit/engine: decoding compute_shape_id result: %w", jerr)
	}
	return decoded.ShapeId, nil
}

func (c *Client) AddQuery(ctx context.Context, shape model.Statement, resultHint any) (AddQueryResult, error) {
	payload := struct {
		Shape      model.Statement `json:"shape"`
		ResultHint any             `json:"resultHint,omitempty"`
	}{Shape: shape, ResultHint: resultHint}

	raw, err := c.call(ctx, c.fnAddQuery, payload)
	if err != nil {
		return AddQueryResult{}, err
	}
	var out AddQueryResult
	if jerr := json.Unmarshal(raw, &out); jerr != nil {
		return AddQueryResult{}, fmt.Errorf("includekit/engine: decoding add_query result: %w", jerr)
	}
	return out, nil
}

func (c *Client) Invalidate(ctx context.Context, mutation model.Mutation) ([]model.ShapeId, error) {
	raw, err := c.call(ctx, c.fnInvalidate, mutation)
	if err != nil {
		return nil, err
	}
	var out invalidateResult
	if jerr := json.Unmarshal(raw, &out); jerr != nil {
		return nil, fmt.Errorf("includekit/engine: decoding invalidate result: %w", jerr)
	}
	return out.Evict, nil
}

func (c *Client) ExplainInvalidation(ctx context.Context, mutation model.Mutation, shapeId model.ShapeId) (ExplainResult, error) {
	payload := struct {
		Mutation model.Mutation `json:"mutation"`
		ShapeId  model.ShapeId  `json:"shapeId"`
	}{Mutation: mutation, ShapeId: shapeId}

	raw, err := c.call(ctx, c.fnExplainInvalidation, payload)
	if err != nil {
		return ExplainResult{}, err
	}
	var out ExplainResult
	if jerr := json.Unmarshal(raw, &out); jerr != nil {
		return ExplainResult{}, fmt.Errorf("includekit/engine: decoding explain_invalidation result: %w", jerr)
	}
	return out, nil
}

func (c *Client) Reset(ctx context.Context) error {
	_, err := c.call(ctx, c.fnReset, nil)
	return err
}

// Close releases the scratch allocation. The wasmtime store and its linear
// memory are reclaimed by the garbage collector; there is no explicit
// store-level Close in wasmtime-go's v3 API.
func (c *Client) Close() error {
	c.clientMu.Lock()
	defer c.clientMu.Unlock()
	if c.scratchPtr != 0 {
		c.free(c.scratchPtr, scratchSize)
		c.scratchPtr = 0
	}
	c.logger.Info().Msg("dependency engine client closed")
	return nil
}
