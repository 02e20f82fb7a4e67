package main

import "errors"

var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownIntent   = errors.New("unknown intent")
	ErrFireLimited     = errors.New("fire limited")
	ErrModeUnsupported = errors.New("game mode not supported")
	ErrInvalidConfig   = errors.New("invalid config")
)
