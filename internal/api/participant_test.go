package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"trip_planner/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddParticipant(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "bob", "bob@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	// Unknown email
	w := addParticipant(t, r, aliceToken, tripID, "nobody@example.com", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Role defaults to viewer when unspecified
	w = addParticipant(t, r, aliceToken, tripID, "bob@example.com", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Participant ParticipantResponse `json:"participant"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.RoleViewer, resp.Participant.Role)

	// Adding the same user again is a conflict
	w = addParticipant(t, r, aliceToken, tripID, "bob@example.com", "editor")
	assert.Equal(t, http.StatusConflict, w.Code)

	// The creator is already the implicit owner
	w = addParticipant(t, r, aliceToken, tripID, "alice@example.com", "viewer")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnlyCreatorManagesMembership(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "bob", "bob@example.com")
	createUser(t, db, "carol", "carol@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	w := addParticipant(t, r, aliceToken, tripID, "bob@example.com", "editor")
	require.Equal(t, http.StatusCreated, w.Code)
	var bob domain.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)

	// An editor cannot invite others
	w = addParticipant(t, r, tokenFor(t, bob), tripID, "carol@example.com", "viewer")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Nor remove the creator
	w = doRequest(t, r, http.MethodDelete, tripPath(tripID, "/participants/"+itoa(alice.ID)), tokenFor(t, bob), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreatorMembershipIsImmutable(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	// Not even the creator can remove themselves
	w := doRequest(t, r, http.MethodDelete, tripPath(tripID, "/participants/"+itoa(alice.ID)), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Or downgrade their own role
	w = doRequest(t, r, http.MethodPut, tripPath(tripID, "/participants/"+itoa(alice.ID)+"/role"), aliceToken, gin.H{"role": "viewer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndRemoveParticipant(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "bob", "bob@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	w := addParticipant(t, r, aliceToken, tripID, "bob@example.com", "viewer")
	require.Equal(t, http.StatusCreated, w.Code)
	var bob domain.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)

	// Promote bob to editor
	w = doRequest(t, r, http.MethodPut, tripPath(tripID, "/participants/"+itoa(bob.ID)+"/role"), aliceToken, gin.H{"role": "editor"})
	require.Equal(t, http.StatusOK, w.Code)
	var participant domain.Participant
	require.NoError(t, db.Where("trip_id = ? AND user_id = ?", tripID, bob.ID).First(&participant).Error)
	assert.Equal(t, domain.RoleEditor, participant.Role)

	// Remove bob
	w = doRequest(t, r, http.MethodDelete, tripPath(tripID, "/participants/"+itoa(bob.ID)), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	err := db.Where("trip_id = ? AND user_id = ?", tripID, bob.ID).First(&participant).Error
	assert.Error(t, err)

	// Removing a non-member reports not found
	w = doRequest(t, r, http.MethodDelete, tripPath(tripID, "/participants/"+itoa(bob.ID)), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRosterListsCreatorFirst(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "bob", "bob@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	w := addParticipant(t, r, aliceToken, tripID, "bob@example.com", "editor")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodGet, tripPath(tripID, "/participants"), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Participants []ParticipantResponse `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Participants, 2)
	assert.Equal(t, alice.ID, resp.Participants[0].UserID)
	assert.Equal(t, domain.RoleOwner, resp.Participants[0].Role)
	assert.Equal(t, domain.RoleEditor, resp.Participants[1].Role)
}
