package feed

// Reaction is the viewer's reaction state on a single post. A single
// three-valued state makes a liked-and-disliked post unrepresentable.
type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionLiked
	ReactionDisliked
)

func (r Reaction) String() string {
	switch r {
	case ReactionNone:
		return "none"
	case ReactionLiked:
		return "liked"
	case ReactionDisliked:
		return "disliked"
	}
	return "invalid"
}

// Action is a reaction toggle requested by the viewer.
type Action int

const (
	SetLiked Action = iota
	ClearLiked
	SetDisliked
	ClearDisliked
)

func (a Action) String() string {
	switch a {
	case SetLiked:
		return "set_liked"
	case ClearLiked:
		return "clear_liked"
	case SetDisliked:
		return "set_disliked"
	case ClearDisliked:
		return "clear_disliked"
	}
	return "invalid"
}

// Toggle computes the next reaction state and the counter deltas for one
// toggle. Setting one polarity atomically clears the opposite one: the
// result is a single value change, never two sequential flips. Repeating
// the current state, or clearing a reaction the viewer does not hold, is
// a no-op with zero deltas.
func Toggle(current Reaction, action Action) (next Reaction, likeDelta, dislikeDelta int) {
	switch action {
	case SetLiked:
		switch current {
		case ReactionLiked:
			return ReactionLiked, 0, 0
		case ReactionDisliked:
			return ReactionLiked, +1, -1
		default:
			return ReactionLiked, +1, 0
		}
	case ClearLiked:
		if current == ReactionLiked {
			return ReactionNone, -1, 0
		}
		return current, 0, 0
	case SetDisliked:
		switch current {
		case ReactionDisliked:
			return ReactionDisliked, 0, 0
		case ReactionLiked:
			return ReactionDisliked, -1, +1
		default:
			return ReactionDisliked, 0, +1
		}
	case ClearDisliked:
		if current == ReactionDisliked {
			return ReactionNone, 0, -1
		}
		return current, 0, 0
	}
	return current, 0, 0
}
