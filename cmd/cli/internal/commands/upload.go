package commands

import (
	"context"
	"fmt"
)

type UploadCmd struct {
	File string `arg:"" type:"existingfile" help:"File to upload"`
}

func (u *UploadCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	url, err := env.Uploader.Upload(ctx, u.File)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Println(url)
	return nil
}
