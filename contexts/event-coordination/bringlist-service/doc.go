// Package bringlistservice tracks what members bring to an event. Items have
// a claim cap; a member holds at most one claim per item.
package bringlistservice
