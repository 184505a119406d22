//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string { return &s }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startMySQL runs an isolated MySQL container with the migrations applied.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=booking",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "booking")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	wifi, err := repo.CreateFacility(ctx, "Wi-Fi")
	if err != nil {
		t.Fatalf("CreateFacility: %v", err)
	}
	pool, _ := repo.CreateFacility(ctx, "Pool")

	sea, err := repo.CreateHotel(ctx, domain.HotelInput{Title: "Sea View", Location: "Sochi, Beach st. 1"})
	if err != nil {
		t.Fatalf("CreateHotel: %v", err)
	}
	mountain, _ := repo.CreateHotel(ctx, domain.HotelInput{Title: "Mountain 100%", Location: "Krasnaya Polyana"})

	single, err := repo.CreateRoom(ctx, sea.ID, domain.RoomInput{
		Title: "Single", Description: pstr("one bed"), Price: 4500, Quantity: 1, FacilityIDs: []int64{wifi.ID, pool.ID},
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	twin, _ := repo.CreateRoom(ctx, mountain.ID, domain.RoomInput{Title: "Twin", Price: 6000, Quantity: 2})

	guest, err := repo.CreateUser(ctx, "guest@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	t.Run("rooms keep facilities", func(t *testing.T) {
		got, err := repo.GetRoom(ctx, sea.ID, single.ID)
		if err != nil {
			t.Fatalf("GetRoom: %v", err)
		}
		if len(got.FacilityIDs) != 2 || got.Description == nil || *got.Description != "one bed" {
			t.Fatalf("unexpected room: %+v", got)
		}
		if _, err := repo.GetRoom(ctx, mountain.ID, single.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("room found under the wrong hotel: %v", err)
		}

		got.FacilityIDs = []int64{pool.ID}
		got.Price = 5000
		upd, err := repo.UpdateRoom(ctx, got)
		if err != nil {
			t.Fatalf("UpdateRoom: %v", err)
		}
		if upd.Price != 5000 || len(upd.FacilityIDs) != 1 || upd.FacilityIDs[0] != pool.ID {
			t.Fatalf("unexpected updated room: %+v", upd)
		}

		if _, err := repo.CreateRoom(ctx, sea.ID, domain.RoomInput{Title: "Ghost", Quantity: 1, FacilityIDs: []int64{9999}}); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("unknown facility accepted: %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		if _, err := repo.CreateUser(ctx, "guest@example.com", "x"); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("want ErrConflict, got %v", err)
		}
	})

	t.Run("admission under contention", func(t *testing.T) {
		svc := app.NewBookingService(repo)
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.RequestBooking(ctx, guest.ID, twin.ID, domain.NewDateRange(day("2024-09-08"), day("2024-09-20")))
				if err == nil {
					mu.Lock()
					admitted++
					mu.Unlock()
				} else if !errors.Is(err, domain.ErrNoAvailability) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		if admitted != 2 {
			t.Fatalf("admitted %d bookings for quantity 2", admitted)
		}
	})

	t.Run("price and inclusive boundary", func(t *testing.T) {
		svc := app.NewBookingService(repo)
		b, err := svc.RequestBooking(ctx, guest.ID, single.ID, domain.NewDateRange(day("2024-08-10"), day("2024-08-20")))
		if err != nil {
			t.Fatalf("RequestBooking: %v", err)
		}
		if b.Price != 5000*10 {
			t.Fatalf("price = %d", b.Price)
		}
		_, err = svc.RequestBooking(ctx, guest.ID, single.ID, domain.NewDateRange(day("2024-08-20"), day("2024-08-25")))
		if !errors.Is(err, domain.ErrNoAvailability) {
			t.Fatalf("back-to-back stay admitted: %v", err)
		}
		if _, err := svc.RequestBooking(ctx, guest.ID, 99999, domain.NewDateRange(day("2024-08-20"), day("2024-08-25"))); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("list hotels with window", func(t *testing.T) {
		w := domain.NewDateRange(day("2024-08-12"), day("2024-08-14"))
		got, err := repo.ListHotels(ctx, domain.HotelsQuery{Limit: 100, Window: &w})
		if err != nil {
			t.Fatalf("ListHotels: %v", err)
		}
		if len(got) != 1 || got[0].ID != mountain.ID {
			t.Fatalf("expected only the mountain hotel, got %+v", got)
		}

		got, _ = repo.ListHotels(ctx, domain.HotelsQuery{Limit: 100, Title: pstr("100%")})
		if len(got) != 1 || got[0].ID != mountain.ID {
			t.Fatalf("literal %% not escaped: %+v", got)
		}
		got, _ = repo.ListHotels(ctx, domain.HotelsQuery{Limit: 100, Location: pstr("SOCHI")})
		if len(got) != 1 || got[0].ID != sea.ID {
			t.Fatalf("location filter: %+v", got)
		}
		got, _ = repo.ListHotels(ctx, domain.HotelsQuery{Limit: 1, Offset: 1})
		if len(got) != 1 || got[0].ID != mountain.ID {
			t.Fatalf("pagination: %+v", got)
		}

		rooms, err := repo.RoomsWithOverlaps(ctx, mountain.ID, domain.NewDateRange(day("2024-09-10"), day("2024-09-11")))
		if err != nil || len(rooms) != 1 || rooms[0].Overlapping != 2 || rooms[0].Free() != 0 {
			t.Fatalf("rooms=%+v err=%v", rooms, err)
		}
	})

	t.Run("check-ins and cancellation", func(t *testing.T) {
		due, err := repo.ListCheckIns(ctx, day("2024-09-08"))
		if err != nil || len(due) != 2 {
			t.Fatalf("due=%+v err=%v", due, err)
		}
		stranger, _ := repo.CreateUser(ctx, "other@example.com", "x")
		if err := repo.DeleteUserBooking(ctx, stranger.ID, due[0].ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("stranger cancelled: %v", err)
		}
		if err := repo.DeleteUserBooking(ctx, guest.ID, due[0].ID); err != nil {
			t.Fatalf("DeleteUserBooking: %v", err)
		}
		mine, _ := repo.ListUserBookings(ctx, guest.ID)
		if len(mine) != 2 {
			t.Fatalf("remaining bookings: %+v", mine)
		}
	})

	t.Run("delete hotel cascades", func(t *testing.T) {
		if err := repo.DeleteHotel(ctx, sea.ID); err != nil {
			t.Fatalf("DeleteHotel: %v", err)
		}
		if err := repo.DeleteHotel(ctx, sea.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("second delete: %v", err)
		}
		if _, err := repo.GetRoom(ctx, sea.ID, single.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("room survived its hotel: %v", err)
		}
	})
}
