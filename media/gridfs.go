package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "vehicleImages"

// GridFSStore keeps files in a MongoDB GridFS bucket.
type GridFSStore struct {
	db *mongo.Database
}

func NewGridFSStore(db *mongo.Database) *GridFSStore {
	return &GridFSStore{db: db}
}

// bucket is opened per call; deadlines are bucket state and calls run
// concurrently.
func (s *GridFSStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (s *GridFSStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	bucket, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	id, err := bucket.UploadFromStream(name, r, opts)
	if err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return id.Hex(), nil
}

type gridfsFile struct {
	Name     string `bson:"filename"`
	Metadata struct {
		ContentType string `bson:"contentType"`
	} `bson:"metadata"`
}

func (s *GridFSStore) Open(ctx context.Context, id string) (*File, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	bucket, err := s.bucket(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := bucket.Find(bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("gridfs find: %w", err)
	}
	defer cursor.Close(ctx)
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	var meta gridfsFile
	if err := cursor.Decode(&meta); err != nil {
		return nil, err
	}

	stream, err := bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gridfs download: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	return &File{ID: id, Name: meta.Name, ContentType: meta.Metadata.ContentType, Data: data}, nil
}
