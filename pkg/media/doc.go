// Package media inspects downloaded videos and samples preview frames from
// them with ffprobe and ffmpeg.
//
// FFmpeg wraps both binaries. NewFFmpeg fails with a tool_unavailable error
// when either one cannot be found, which callers treat as "previews
// disabled" rather than as a request failure. Thumbnailer picks the frame
// timestamps and names the output files.
package media
