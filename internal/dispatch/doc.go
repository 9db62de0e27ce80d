// Package dispatch sends one batch of quiz questions per run and advances
// the progress cursor.
//
// A run greets every recipient, then sends each question of the window as
// a topic line, a quiz poll and (after a pause) an explanation. Failures of
// a single question are captured in its SendResult and never stop the batch:
// the cursor advances past every attempted question. The guarantee is
// at-least-attempted, not at-least-delivered.
package dispatch
