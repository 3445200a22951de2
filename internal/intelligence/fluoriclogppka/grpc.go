package fluoriclogppka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// gRPC service and method names.
const (
	ServiceName      = "fluoriclogppka.v1.Inference"
	PredictMethod    = "/" + ServiceName + "/Predict"
	Features3DMethod = "/" + ServiceName + "/Features3D"
)

type grpcClient struct {
	conn   *grpc.ClientConn
	logger logging.Logger
	closed atomic.Bool
}

// GRPCDialOptions returns transport credentials and keepalive settings.
// keepaliveTime of zero uses 60s.
func GRPCDialOptions(plaintext bool, keepaliveTime time.Duration) []grpc.DialOption {
	if keepaliveTime == 0 {
		keepaliveTime = 60 * time.Second
	}
	var creds credentials.TransportCredentials
	if plaintext {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                keepaliveTime,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
}

// NewGRPCClient dials target lazily; the first call establishes the
// connection.
func NewGRPCClient(target string, logger logging.Logger, opts ...grpc.DialOption) (Client, error) {
	if target == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "inference endpoint is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	conn, err := grpc.Dial(target, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAIModelNotAvailable, "failed to create inference connection")
	}
	return &grpcClient{conn: conn, logger: logger}, nil
}

func (c *grpcClient) Predict(ctx context.Context, req *PredictRequest) (prediction.Value, error) {
	if err := req.validate(); err != nil {
		return prediction.Value{}, err
	}
	in, err := structpb.NewStruct(map[string]interface{}{
		"SMILES":       req.SMILES,
		"target_value": req.TargetValue,
		"model_type":   req.ModelType,
	})
	if err != nil {
		return prediction.Value{}, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode inference request")
	}
	out, err := c.invoke(ctx, PredictMethod, in)
	if err != nil {
		return prediction.Value{}, err
	}
	raw, ok := out.GetFields()["result"]
	if !ok {
		return prediction.Value{}, apperrors.New(apperrors.ErrCodeAIInferenceFailed, "malformed inference response").
			WithDetail(`missing "result"`)
	}
	return prediction.ValueOf(fromProto(raw)), nil
}

func (c *grpcClient) Features3D(ctx context.Context, req *Features3DRequest) (*prediction.Features3D, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{
		"SMILES":           req.SMILES,
		"target_value":     req.TargetValue,
		"conformers_limit": nil,
	}
	if req.ConformersLimit != nil {
		fields["conformers_limit"] = *req.ConformersLimit
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode descriptor request")
	}
	out, err := c.invoke(ctx, Features3DMethod, in)
	if err != nil {
		return nil, err
	}
	raw, ok := out.GetFields()["features"]
	if !ok {
		return prediction.NewMapping(), nil
	}
	if _, isNull := raw.GetKind().(*structpb.Value_NullValue); isNull {
		return prediction.NewMapping(), nil
	}
	s := raw.GetStructValue()
	if s == nil {
		return nil, apperrors.New(apperrors.ErrCodeAIFeatures3DFailed, "malformed descriptor response").
			WithDetail(`"features" is not an object`)
	}
	return mappingFromStruct(s), nil
}

func (c *grpcClient) Healthy(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return grpcError(ctx, err, "health")
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return apperrors.New(apperrors.ErrCodeAIModelNotAvailable, "inference service unhealthy").
			WithDetail(resp.GetStatus().String())
	}
	return nil
}

func (c *grpcClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *grpcClient) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	rid := requestID(ctx)
	ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", rid)

	out := new(structpb.Struct)
	start := time.Now()
	err := c.conn.Invoke(ctx, method, in, out)
	c.logger.Debug("inference rpc",
		logging.String("method", method),
		logging.Duration("duration", time.Since(start)),
		logging.String(logging.FieldRequestID, rid),
		logging.Bool("ok", err == nil))
	if err != nil {
		return nil, grpcError(ctx, err, method)
	}
	return out, nil
}

// grpcError maps a status error onto the collaborator error codes, keeping
// the server's message as the user-facing text.
func grpcError(ctx context.Context, err error, op string) error {
	st, ok := status.FromError(err)
	if !ok {
		return deadlineError(ctx, err, op)
	}
	var code apperrors.ErrorCode
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		code = apperrors.ErrCodeAIModelNotAvailable
	case codes.DeadlineExceeded:
		code = apperrors.ErrCodeAITimeout
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange, codes.NotFound:
		code = apperrors.ErrCodeAIInputInvalid
	default:
		code = apperrors.ErrCodeAIInferenceFailed
	}
	return apperrors.New(code, st.Message()).WithDetail(op + ": " + st.Code().String())
}

// ─────────────────────────────────────────────────────────────────────────────
// structpb conversion
// ─────────────────────────────────────────────────────────────────────────────

// fromProto converts a Struct value.  Numbers arrive as doubles; integral
// values within the exact range become integer literals.  Struct fields are
// unordered on the wire, so nested objects come back sorted by key.
func fromProto(v *structpb.Value) interface{} {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return numberFromDouble(k.NumberValue)
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_StructValue:
		return mappingFromStruct(k.StructValue)
	case *structpb.Value_ListValue:
		items := k.ListValue.GetValues()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = fromProto(item)
		}
		return out
	}
	return nil
}

func mappingFromStruct(s *structpb.Struct) *prediction.Mapping {
	fields := s.GetFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := prediction.NewMapping()
	for _, k := range keys {
		m.Set(k, fromProto(fields[k]))
	}
	return m
}

func numberFromDouble(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return json.Number(strconv.FormatInt(int64(f), 10))
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
}
