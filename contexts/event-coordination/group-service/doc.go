// Package groupservice owns groups, invite codes and membership. Other
// services ask it whether a user belongs to a group before they accept any
// group-scoped write.
package groupservice
