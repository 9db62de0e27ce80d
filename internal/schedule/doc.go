// Package schedule triggers quiz runs from inside the process for
// `quizcast serve`.
//
// A schedule is either a cron expression (robfig/cron, optional seconds
// field and @descriptors) or a fixed interval. Runs never overlap: a
// trigger that fires while the previous run is still sending is skipped.
package schedule
