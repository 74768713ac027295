package log

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"time"

	"github.com/holiman/uint256"

	"github.com/ethereum/go-ethereum/common/hexutil"
	elog "github.com/ethereum/go-ethereum/log"
)

const timeFormatMs = "2006-01-02T15:04:05.000-0700"

// JSONMsHandlerWithLevel writes JSON records with millisecond timestamps under "t".
func JSONMsHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, msHandlerOptions(level, false))
}

// LogfmtMsHandlerWithLevel writes logfmt records with millisecond timestamps under "t".
func LogfmtMsHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, msHandlerOptions(level, true))
}

func msHandlerOptions(level slog.Level, logfmt bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			return replaceChainAttr(attr, logfmt)
		},
	}
}

// replaceChainAttr renders the values a fork check logs (balances, calldata, step
// durations) the same way in every format.
func replaceChainAttr(attr slog.Attr, logfmt bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() != slog.KindTime {
			break
		}
		if logfmt {
			return slog.String("t", attr.Value.Time().Format(timeFormatMs))
		}
		return slog.Attr{Key: "t", Value: attr.Value}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", elog.LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if logfmt {
			attr.Value = slog.StringValue(v.Format(timeFormatMs))
		}
	case time.Duration:
		attr.Value = slog.StringValue(v.Round(time.Millisecond).String())
	case *big.Int:
		attr.Value = slog.StringValue(nilOr(v == nil, v.String))
	case *uint256.Int:
		attr.Value = slog.StringValue(nilOr(v == nil, v.Dec))
	case []byte:
		// hex so calldata and return data match explorers
		attr.Value = slog.StringValue(hexutil.Encode(v))
	case fmt.Stringer:
		if reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil() {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}

func nilOr(isNil bool, str func() string) string {
	if isNil {
		return "<nil>"
	}
	return str()
}
