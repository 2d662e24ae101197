package weberr

import "github.com/irsalhamdi/course-cache/remote"

// FromRemote maps a course marketplace API failure onto a local response.
func FromRemote(err error, opts ...Opt) error {
	switch {
	case remote.IsAuth(err):
		return NotAuthorized(err, opts...)
	case remote.IsNotFound(err):
		return NotFound(err, opts...)
	default:
		return Upstream(err, remote.Message(err), opts...)
	}
}
