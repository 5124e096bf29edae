package usecases

import (
	"errors"
	"fmt"
)

// Errors for the music player module.
var (
	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrRemoveTrack is returned when tracks could not be removed from the queue.
	ErrRemoveTrack = errors.New("could not remove track")

	// ErrNotInVoiceChannel is returned when an operation requires a voice connection
	// and neither the bot nor the user is in a voice channel.
	ErrNotInVoiceChannel = errors.New("not in a voice channel")

	// ErrNoPlayingTrack is returned when no track is currently playing.
	ErrNoPlayingTrack = errors.New("no currently playing track")

	// ErrNoPausedTrack is returned when no track is currently paused.
	ErrNoPausedTrack = errors.New("no currently paused track")

	// ErrBadPlaylist is returned when a playlist is invalid or empty.
	ErrBadPlaylist = errors.New("invalid or empty playlist")
)

// BadSourceError is returned when a source rejects a query.
type BadSourceError struct {
	Detail string
}

func (e *BadSourceError) Error() string {
	return "could not load source: " + e.Detail
}

// AddTracksError reports a partially failed bulk add.
type AddTracksError struct {
	Failed int
	Total  int
}

func (e *AddTracksError) Error() string {
	return fmt.Sprintf("could not add %d of %d tracks", e.Failed, e.Total)
}

// InternalError wraps failures whose detail must not reach users.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

const genericErrorMessage = "Something went wrong while processing your request"

// UserMessage returns the message shown to users for err.
func UserMessage(err error) string {
	var (
		internal  *InternalError
		badSource *BadSourceError
		addTracks *AddTracksError
	)

	switch {
	case errors.As(err, &internal):
		return genericErrorMessage
	case errors.As(err, &badSource):
		return "Could not load source"
	case errors.As(err, &addTracks):
		return fmt.Sprintf("Could not add %d of %d tracks", addTracks.Failed, addTracks.Total)
	case errors.Is(err, ErrNoResults):
		return "No results found"
	case errors.Is(err, ErrRemoveTrack):
		return "Could not remove track"
	case errors.Is(err, ErrNotInVoiceChannel):
		return "Not in a voice channel"
	case errors.Is(err, ErrNoPlayingTrack):
		return "No currently playing track"
	case errors.Is(err, ErrNoPausedTrack):
		return "No currently paused track"
	case errors.Is(err, ErrBadPlaylist):
		return "Invalid or empty playlist"
	default:
		return genericErrorMessage
	}
}

// IsInternal reports whether err should be logged with full detail.
func IsInternal(err error) bool {
	return UserMessage(err) == genericErrorMessage
}
