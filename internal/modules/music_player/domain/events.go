package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Event is a signal raised by the voice runtime or the chat gateway.
// The set of variants is closed.
type Event interface {
	Guild() snowflake.ID
	isEvent()
}

// TrackEndReason represents why a track ended.
type TrackEndReason string

const (
	// TrackEndFinished means the track finished normally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the track failed to load.
	TrackEndLoadFailed TrackEndReason = "load_failed"
	// TrackEndStopped means the track was stopped by the user.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means the track was replaced by another.
	TrackEndReplaced TrackEndReason = "replaced"
	// TrackEndCleanup means the track was cleaned up.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// ShouldAdvanceQueue returns true if this end reason should advance the queue.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	return r != TrackEndReplaced
}

// TrackStartedEvent is published when a track starts or resumes playing.
type TrackStartedEvent struct {
	GuildID  snowflake.ID
	HandleID string
	Track    *ResolvedTrack
	Position time.Duration
	// Initial is true when the track was started by being enqueued onto an idle queue.
	// The add operation that enqueued it reports it.
	Initial bool
}

// TrackPausedEvent is published when the current track is paused.
type TrackPausedEvent struct {
	GuildID  snowflake.ID
	HandleID string
	Track    *ResolvedTrack
}

// TrackEndedEvent is published once a track has ended and the queue has advanced.
type TrackEndedEvent struct {
	GuildID  snowflake.ID
	HandleID string
	Track    *ResolvedTrack
	Reason   TrackEndReason
}

// VoiceMembershipChangedEvent is published when a user joins or leaves the bot's voice channel.
type VoiceMembershipChangedEvent struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Listeners int // humans remaining in the channel
}

// VoiceDisconnectedEvent is published when the bot is removed from voice by someone else.
type VoiceDisconnectedEvent struct {
	GuildID snowflake.ID
}

func (e TrackStartedEvent) Guild() snowflake.ID           { return e.GuildID }
func (e TrackPausedEvent) Guild() snowflake.ID            { return e.GuildID }
func (e TrackEndedEvent) Guild() snowflake.ID             { return e.GuildID }
func (e VoiceMembershipChangedEvent) Guild() snowflake.ID { return e.GuildID }
func (e VoiceDisconnectedEvent) Guild() snowflake.ID      { return e.GuildID }

func (TrackStartedEvent) isEvent()           {}
func (TrackPausedEvent) isEvent()            {}
func (TrackEndedEvent) isEvent()             {}
func (VoiceMembershipChangedEvent) isEvent() {}
func (VoiceDisconnectedEvent) isEvent()      {}
