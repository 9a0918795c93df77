package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"gamelog/models"

	"github.com/gin-gonic/gin"
)

func createList(t *testing.T, e *testEnv, token string, body gin.H) models.List {
	t.Helper()
	w := e.do(http.MethodPost, "/api/lists", token, body)
	expectStatus(t, w, http.StatusCreated)
	var l models.List
	decode(t, w, &l)
	return l
}

func TestCreateList(t *testing.T) {
	e := newTestEnv(t, 0)
	token, ownerID := e.register("geralt")
	g1, g2 := e.game("Gwent"), e.game("Witcher 3")

	l := createList(t, e, token, gin.H{"title": "Favorites", "games": []uint{g2.ID, g1.ID, g2.ID}})
	if l.OwnerID != ownerID || !l.IsPublic {
		t.Errorf("list = %+v", l)
	}
	if len(l.Games) != 2 || l.Games[0] != g2.ID || l.Games[1] != g1.ID {
		t.Errorf("games = %v, want order kept without duplicates", l.Games)
	}

	private := createList(t, e, token, gin.H{"title": "Secret", "isPublic": false})
	if private.IsPublic {
		t.Error("isPublic=false was not kept")
	}
	var stored models.List
	e.db.First(&stored, private.ID)
	if stored.IsPublic {
		t.Error("isPublic=false not persisted")
	}

	expectStatus(t, e.do(http.MethodPost, "/api/lists", token, gin.H{"description": "no title"}), http.StatusBadRequest)
	expectStatus(t, e.do(http.MethodPost, "/api/lists", token, gin.H{"title": "x", "games": []uint{999}}), http.StatusNotFound)
	expectStatus(t, e.do(http.MethodPost, "/api/lists", "", gin.H{"title": "anon"}), http.StatusUnauthorized)

	var mine []models.List
	decode(t, e.do(http.MethodGet, "/api/lists/user", token, nil), &mine)
	if len(mine) != 2 {
		t.Errorf("my lists = %d", len(mine))
	}
}

func TestPrivateListVisibility(t *testing.T) {
	e := newTestEnv(t, 0)
	owner, ownerID := e.register("yennefer")
	other, _ := e.register("triss")
	private := createList(t, e, owner, gin.H{"title": "Hidden", "isPublic": false})
	public := createList(t, e, owner, gin.H{"title": "Shown"})

	path := fmt.Sprintf("/api/lists/%d", private.ID)
	expectStatus(t, e.do(http.MethodGet, path, "", nil), http.StatusNotFound)
	expectStatus(t, e.do(http.MethodGet, path, other, nil), http.StatusNotFound)
	expectStatus(t, e.do(http.MethodGet, path, owner, nil), http.StatusOK)
	expectStatus(t, e.do(http.MethodGet, fmt.Sprintf("/api/lists/%d", public.ID), "", nil), http.StatusOK)
	expectStatus(t, e.do(http.MethodGet, "/api/lists/abc", "", nil), http.StatusNotFound)

	byUser := fmt.Sprintf("/api/users/%d/lists", ownerID)
	var lists []models.List
	decode(t, e.do(http.MethodGet, byUser, "", nil), &lists)
	if len(lists) != 1 || lists[0].ID != public.ID {
		t.Errorf("anonymous view = %+v", lists)
	}
	decode(t, e.do(http.MethodGet, byUser, other, nil), &lists)
	if len(lists) != 1 {
		t.Errorf("other user view = %d lists", len(lists))
	}
	decode(t, e.do(http.MethodGet, byUser, owner, nil), &lists)
	if len(lists) != 2 {
		t.Errorf("owner view = %d lists", len(lists))
	}
	expectStatus(t, e.do(http.MethodGet, "/api/users/9999/lists", "", nil), http.StatusNotFound)
}

func TestOnlyOwnerMutatesList(t *testing.T) {
	e := newTestEnv(t, 0)
	owner, _ := e.register("ellie")
	other, _ := e.register("joel")
	g := e.game("The Last of Us")
	l := createList(t, e, owner, gin.H{"title": "Coop"})
	hidden := createList(t, e, owner, gin.H{"title": "Hidden", "isPublic": false})

	path := fmt.Sprintf("/api/lists/%d", l.ID)
	expectStatus(t, e.do(http.MethodPut, path, other, gin.H{"title": "mine now"}), http.StatusForbidden)
	expectStatus(t, e.do(http.MethodDelete, path, other, nil), http.StatusForbidden)
	expectStatus(t, e.do(http.MethodPost, path+"/games", other, gin.H{"gameId": g.ID}), http.StatusForbidden)
	expectStatus(t, e.do(http.MethodPut, fmt.Sprintf("/api/lists/%d", hidden.ID), other, gin.H{"title": "x"}), http.StatusNotFound)

	w := e.do(http.MethodPut, path, owner, gin.H{"title": "Couch coop", "isPublic": false})
	expectStatus(t, w, http.StatusOK)
	var updated models.List
	decode(t, w, &updated)
	if updated.Title != "Couch coop" || updated.IsPublic {
		t.Errorf("updated = %+v", updated)
	}
	expectStatus(t, e.do(http.MethodPut, path, owner, gin.H{"title": ""}), http.StatusBadRequest)

	expectStatus(t, e.do(http.MethodDelete, path, owner, nil), http.StatusNoContent)
	expectStatus(t, e.do(http.MethodGet, path, owner, nil), http.StatusNotFound)
}

func TestListGames(t *testing.T) {
	e := newTestEnv(t, 0)
	token, _ := e.register("lara")
	g1, g2 := e.game("Tomb Raider"), e.game("Uncharted")
	l := createList(t, e, token, gin.H{"title": "Adventure"})
	path := fmt.Sprintf("/api/lists/%d/games", l.ID)

	var got models.List
	for _, id := range []uint{g1.ID, g2.ID, g1.ID} {
		w := e.do(http.MethodPost, path, token, gin.H{"gameId": id})
		expectStatus(t, w, http.StatusOK)
		decode(t, w, &got)
	}
	if len(got.Games) != 2 || got.Games[0] != g1.ID || got.Games[1] != g2.ID {
		t.Fatalf("games = %v", got.Games)
	}

	expectStatus(t, e.do(http.MethodPost, path, token, gin.H{"gameId": 4040}), http.StatusNotFound)
	expectStatus(t, e.do(http.MethodPost, path, token, gin.H{}), http.StatusBadRequest)

	w := e.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, g1.ID), token, nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &got)
	if len(got.Games) != 1 || got.Games[0] != g2.ID {
		t.Errorf("after remove = %v", got.Games)
	}

	var stored models.List
	e.db.First(&stored, l.ID)
	if len(stored.Games) != 1 {
		t.Errorf("stored games = %v", stored.Games)
	}
	expectStatus(t, e.do(http.MethodDelete, path+"/zzz", token, nil), http.StatusNotFound)
}
