// Package deck synthesizes polling slides into a package working copy: the
// slide plan, the per-question slide parts, the player metadata tags, and the
// mapping records that later join imported responses back to questions.
package deck
