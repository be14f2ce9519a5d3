package observability

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
)

const (
	uptraceLogInstrumentation = "playerlink/internal/platform/logging"
	maxLogValueDepth          = 3
)

// Per-message or per-player info entries. Warnings with the same message still pass.
var unmirroredEvents = map[string]struct{}{
	"odds message ingested":        {},
	"no player props for event":    {},
	"player absent from box score": {},
}

var severities = map[logging.Level]otellog.Severity{
	logging.LevelDebug: otellog.SeverityDebug,
	logging.LevelInfo:  otellog.SeverityInfo,
	logging.LevelWarn:  otellog.SeverityWarn,
	logging.LevelError: otellog.SeverityError,
}

func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	emitter := otelglobal.Logger(uptraceLogInstrumentation, otellog.WithInstrumentationVersion(serviceVersion))

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if shouldSkipUptraceLog(level, msg) {
			return
		}
		severity, ok := severities[level]
		if !ok {
			severity = otellog.SeverityFatal
		}
		if !emitter.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}

		var record otellog.Record
		now := time.Now().UTC()
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(strings.ToUpper(level.String()))
		record.SetEventName(msg)
		record.SetBody(otellog.StringValue(msg))
		record.AddAttributes(buildOTelLogAttributes(args)...)

		emitter.Emit(ctx, record)
	}
}

func shouldSkipUptraceLog(level logging.Level, msg string) bool {
	switch {
	case level < logging.LevelInfo:
		return true
	case level > logging.LevelInfo:
		return false
	}
	_, skip := unmirroredEvents[msg]
	return skip
}

// buildOTelLogAttributes pairs args the same way the zap facade does; a trailing key has
// an empty value.
func buildOTelLogAttributes(args []any) []otellog.KeyValue {
	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		key, _ := args[i].(string)
		if strings.TrimSpace(key) == "" {
			key = "arg_" + strconv.Itoa(i/2)
		}
		if i+1 == len(args) {
			attrs = append(attrs, otellog.Empty(key))
			break
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: toOTelLogValue(args[i+1], 0)})
	}
	return attrs
}

func toOTelLogValue(value any, depth int) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int64:
		return otellog.Int64Value(v)
	case float64:
		return otellog.Float64Value(v)
	case []byte:
		return otellog.BytesValue(append([]byte(nil), v...))
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}
	return reflectOTelLogValue(reflect.ValueOf(value), depth)
}

// reflectOTelLogValue covers named kinds such as bettingline.StatType and the map and
// slice shapes the reconciler logs (stat lines, team key lists).
func reflectOTelLogValue(rv reflect.Value, depth int) otellog.Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return otellog.Value{}
		}
		return toOTelLogValue(rv.Elem().Interface(), depth+1)
	case reflect.String:
		return otellog.StringValue(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return otellog.Int64Value(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return otellog.Int64Value(int64(u))
		}
		return otellog.StringValue(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return otellog.Float64Value(rv.Float())
	case reflect.Slice, reflect.Array:
		items := make([]otellog.Value, rv.Len())
		for i := range items {
			items[i] = toOTelLogValue(rv.Index(i).Interface(), depth+1)
		}
		return otellog.SliceValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		kvs := make([]otellog.KeyValue, len(keys))
		for i, k := range keys {
			kvs[i] = otellog.KeyValue{Key: k.String(), Value: toOTelLogValue(rv.MapIndex(k).Interface(), depth+1)}
		}
		return otellog.MapValue(kvs...)
	}
	return otellog.StringValue(fmt.Sprint(rv.Interface()))
}
