// Package logx configures quizcast's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured (one line per event)
//
// The zero Logger is a safe no-op, so components can be constructed
// without a logger in tests.
package logx
