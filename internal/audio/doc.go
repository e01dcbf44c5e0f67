// Package audio converts a project's music folder into GameMaker-ready Ogg
// Vorbis sound assets.
//
// Every .wav inside <project>/music (or Music) is trimmed of the fixed
// leading and trailing silence FamiTracker renders, encoded with ffmpeg's
// libvorbis encoder, and written as snd<Name>.ogg under the output folder.
// ffprobe supplies the duration needed to place the trailing trim.
package audio
