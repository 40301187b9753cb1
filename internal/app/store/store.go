package store

// Store is the entity store: users, their profiles and the follow relation.
type Store interface {
	User() UserRepository
	Profile() ProfileRepository
	Follow() FollowRepository
}
