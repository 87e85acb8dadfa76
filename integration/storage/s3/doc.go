// Package s3 reads palm images from Amazon S3 or an S3-compatible service
// such as MinIO.
//
//	store, err := s3.New(ctx, s3.Config{
//		Bucket: "palm-images",
//		Region: "eu-central-1",
//	})
//	data, err := store.Get(ctx, "users/42/left.jpg")
//	if errors.Is(err, s3.ErrFileNotFound) {
//		// image was removed
//	}
//
// SDK errors are mapped to the package sentinels (ErrFileNotFound,
// ErrAccessDenied, ErrServiceUnavailable and so on). Reads are capped at
// Config.MaxObjectSize. ImageStore satisfies conversation.ImageSource.
package s3
