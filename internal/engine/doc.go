// Package engine runs the round state machine of the toy workshop:
// WAITING -> PIECE_GENERATION -> BUILDING -> CLEANING, looping until a build
// fails and the session ends in GAME_OVER with its review.
//
// Each phase's "wait, then do" work is a Timeline advanced by Engine.Tick,
// so exactly one timeline is live at a time and nothing blocks.
package engine
