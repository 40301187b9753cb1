package service

type FollowAction int

const (
	ActionFollow FollowAction = iota
	ActionUnfollow
)

// Gate holds the ownership rules. There is no role model beyond ownership.
type Gate struct{}

func (Gate) AuthorizeProfileUpdate(actorUsername, targetUsername string) error {
	if actorUsername != targetUsername {
		return ErrForbidden
	}
	return nil
}

func (Gate) AuthorizeFollowAction(actorUsername, targetUsername string, action FollowAction) error {
	if actorUsername != targetUsername {
		return nil
	}
	if action == ActionUnfollow {
		return ErrSelfUnfollow
	}
	return ErrSelfFollow
}
