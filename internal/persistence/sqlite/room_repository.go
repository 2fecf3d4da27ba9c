package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/room-booking/internal/persistence"
)

const roomColumns = `id, name, location, capacity, description, is_available`

// RoomRepository implements persistence.RoomRepository using SQLite.
// Amenities live in room_amenities and keep their insertion order.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRoom inserts a room with the next sequential id.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	if room.Capacity <= 0 {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		id, err := r.helper.nextID(ctx, tx, "rooms")
		if err != nil {
			return r.mapper.MapError(err)
		}
		_, err = r.helper.ExecTx(ctx, tx, `
			INSERT INTO rooms (id, name, location, capacity, description, is_available)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id,
			room.Name,
			room.Location,
			room.Capacity,
			room.Description,
			room.IsAvailable,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if err := r.insertAmenities(ctx, tx, id, room.Amenities); err != nil {
			return err
		}
		room.ID = id
		return nil
	})
	if err != nil {
		return persistence.Room{}, err
	}
	return cloneRoom(room), nil
}

// UpdateRoom overwrites every field of an existing room, amenities included.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	if room.ID <= 0 {
		return persistence.Room{}, persistence.ErrNotFound
	}
	if room.Capacity <= 0 {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE rooms
			SET name = ?, location = ?, capacity = ?, description = ?, is_available = ?
			WHERE id = ?`,
			room.Name,
			room.Location,
			room.Capacity,
			room.Description,
			room.IsAvailable,
			room.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM room_amenities WHERE room_id = ?`, room.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertAmenities(ctx, tx, room.ID, room.Amenities)
	})
	if err != nil {
		return persistence.Room{}, err
	}
	return cloneRoom(room), nil
}

// GetRoom retrieves a room by id.
func (r *RoomRepository) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	if id <= 0 {
		return persistence.Room{}, persistence.ErrNotFound
	}

	room, err := scanRoom(r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}

	amenities, err := r.loadAmenities(ctx, []int64{id})
	if err != nil {
		return persistence.Room{}, err
	}
	room.Amenities = amenities[id]
	return room, nil
}

// ListRooms returns all rooms ordered by id.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var (
		rooms []persistence.Room
		ids   []int64
	)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
		ids = append(ids, room.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	amenities, err := r.loadAmenities(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		rooms[i].Amenities = amenities[rooms[i].ID]
	}
	return rooms, nil
}

// DeleteRoom removes a room and its amenities. Bookings referencing the room
// are left untouched.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id int64) error {
	if id <= 0 {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM room_amenities WHERE room_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func (r *RoomRepository) insertAmenities(ctx context.Context, tx *sql.Tx, roomID int64, amenities []string) error {
	position := 0
	for _, amenity := range amenities {
		amenity = strings.TrimSpace(amenity)
		if amenity == "" {
			continue
		}
		if _, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO room_amenities (room_id, position, amenity) VALUES (?, ?, ?)`,
			roomID, position, amenity,
		); err != nil {
			return r.mapper.MapError(err)
		}
		position++
	}
	return nil
}

func (r *RoomRepository) loadAmenities(ctx context.Context, roomIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(roomIDs))
	if len(roomIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roomIDs)), ",")
	args := make([]any, len(roomIDs))
	for i, id := range roomIDs {
		args[i] = id
	}

	rows, err := r.helper.Query(ctx, `
		SELECT room_id, amenity FROM room_amenities
		WHERE room_id IN (`+placeholders+`)
		ORDER BY room_id ASC, position ASC`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roomID  int64
			amenity string
		)
		if err := rows.Scan(&roomID, &amenity); err != nil {
			return nil, r.mapper.MapError(err)
		}
		result[roomID] = append(result[roomID], amenity)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return result, nil
}

func scanRoom(row scanner) (persistence.Room, error) {
	var room persistence.Room
	err := row.Scan(&room.ID, &room.Name, &room.Location, &room.Capacity, &room.Description, &room.IsAvailable)
	return room, err
}

func cloneRoom(room persistence.Room) persistence.Room {
	clone := room
	clone.Amenities = nil
	for _, amenity := range room.Amenities {
		if trimmed := strings.TrimSpace(amenity); trimmed != "" {
			clone.Amenities = append(clone.Amenities, trimmed)
		}
	}
	return clone
}
