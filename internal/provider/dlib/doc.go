// Package dlib computes 128-dimension face descriptors in process with dlib
// through go-face. It needs the dlib C++ libraries and is only compiled with
// the "dlib" build tag:
//
//	go build -tags dlib ./...
//
// The models directory must contain shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat. Download them from
// https://github.com/Kagami/go-face-testdata.
package dlib
