package provision

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// bootstrapName is the executable the provided.* runtimes start.
const bootstrapName = "bootstrap"

// Function identifies a deployed Lambda.
type Function struct {
	Name string
	ARN  string
}

// PackageBinary zips the compiled handler at path as an executable named bootstrap.
func PackageBinary(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open handler binary: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	hdr := &zip.FileHeader{Name: bootstrapName, Method: zip.Deflate}
	hdr.SetMode(0o755)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return nil, fmt.Errorf("write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// CreateLambda deploys the handler binary at binaryPath as function name, running as role.
// env is passed through as the function's environment. With a code bucket configured the
// package goes through S3 instead of inline.
func (p *Provisioner) CreateLambda(ctx context.Context, name string, role Role, binaryPath string, env map[string]string) (Function, error) {
	pkg, err := PackageBinary(binaryPath)
	if err != nil {
		return Function{}, err
	}

	code := &lambdatypes.FunctionCode{ZipFile: pkg}
	if p.opts.CodeBucket != "" {
		key := name + "/" + bootstrapName + ".zip"
		_, err := p.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket: sdkaws.String(p.opts.CodeBucket),
			Key:    sdkaws.String(key),
			Body:   bytes.NewReader(pkg),
		})
		if err != nil {
			return Function{}, fmt.Errorf("upload %s to s3://%s/%s: %w", name, p.opts.CodeBucket, key, err)
		}
		code = &lambdatypes.FunctionCode{S3Bucket: sdkaws.String(p.opts.CodeBucket), S3Key: sdkaws.String(key)}
	}

	out, err := p.lambda.CreateFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: sdkaws.String(name),
		Role:         sdkaws.String(role.ARN),
		Runtime:      lambdatypes.Runtime(p.opts.LambdaRuntime),
		Handler:      sdkaws.String(bootstrapName),
		Timeout:      sdkaws.Int32(p.opts.LambdaTimeout),
		Code:         code,
		Environment:  &lambdatypes.Environment{Variables: env},
	})
	if err != nil {
		return Function{}, fmt.Errorf("create function %s: %w", name, err)
	}
	p.logger.Info("lambda created", zap.String("function", name), zap.Int("package_bytes", len(pkg)))
	return Function{Name: sdkaws.ToString(out.FunctionName), ARN: sdkaws.ToString(out.FunctionArn)}, nil
}
