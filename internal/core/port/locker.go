package port

// AccountLocker serializes activations over the set of accounts an activation
// mutates (the activating user plus up to two ancestors). Lock acquires every
// id in a deterministic order and returns the release function; callers must
// release on all exit paths.
type AccountLocker interface {
	Lock(ids ...string) (release func())
}
