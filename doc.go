// Package patter provides rule-driven chat-bot machinery.
//
// The dispatch engine is in package 'bot', the rule-tree router is in
// package 'rule', and a daemon is in 'cmd/patterd'.
//
// See https://github.com/patterbot/patter/blob/master/README.md for more.
package patter
